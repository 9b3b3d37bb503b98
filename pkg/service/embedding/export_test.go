package embedding

var Truncate = truncate
