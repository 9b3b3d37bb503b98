package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
)

const (
	// SingleItemLimit is the content length below which content is embedded whole
	SingleItemLimit = 1000
	// DefaultChunkSize is the target length of a content chunk
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the number of characters shared by consecutive chunks
	DefaultChunkOverlap = 100

	breakLookback = 100
)

var breakPoints = []string{". ", ".\n", "\n\n", "! ", "? "}

// PortfolioContent is a source document about the portfolio owner
type PortfolioContent struct {
	ID       string                `toml:"id"`
	Title    string                `toml:"title"`
	Content  string                `toml:"content"`
	Category types.ContentCategory `toml:"category"`
	Tags     []string              `toml:"tags"`
	Metadata map[string]any        `toml:"metadata"`
}

// Validate checks required fields
func (c *PortfolioContent) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrContentTitleRequired
	}
	if strings.TrimSpace(c.Content) == "" {
		return ErrContentBodyRequired
	}
	if _, err := types.ParseContentCategory(c.Category.String()); err != nil {
		return err
	}
	return nil
}

// EmbeddingItems prepares the content for embedding. Short content becomes one
// item; longer content is chunked and every chunk is labelled with its part.
func (c *PortfolioContent) EmbeddingItems() []*EmbeddingItem {
	prefix := c.ID
	if prefix == "" {
		prefix = c.Category.String()
	}

	if len(c.Content) < SingleItemLimit {
		return []*EmbeddingItem{{
			ID:       prefix + "-" + uuid.New().String(),
			Content:  c.Title + ": " + c.Content,
			Metadata: c.metadata(nil),
		}}
	}

	chunks := ChunkContent(c.Content, DefaultChunkSize, DefaultChunkOverlap)
	items := make([]*EmbeddingItem, 0, len(chunks))
	for i, chunk := range chunks {
		items = append(items, &EmbeddingItem{
			ID:      prefix + "-" + uuid.New().String(),
			Content: fmt.Sprintf("%s (Part %d): %s", c.Title, i+1, chunk),
			Metadata: c.metadata(map[string]any{
				"part":       i + 1,
				"totalParts": len(chunks),
			}),
		})
	}
	return items
}

func (c *PortfolioContent) metadata(extra map[string]any) map[string]any {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	md := map[string]any{
		"title":    c.Title,
		"category": c.Category.String(),
		"tags":     tags,
	}
	for k, v := range extra {
		md[k] = v
	}
	// caller supplied metadata wins
	for k, v := range c.Metadata {
		md[k] = v
	}
	return md
}

// ChunkContent splits text into chunks of about size bytes where consecutive
// chunks share overlap bytes. A chunk ends at a sentence or paragraph break
// when one exists within the last 100 bytes of the window.
func ChunkContent(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := min(start+size, len(text))

		if end < len(text) {
			best := end
			for _, bp := range breakPoints {
				limit := min(end-1+len(bp), len(text))
				pos := strings.LastIndex(text[:limit], bp)
				if pos > start && pos < end && pos > best-breakLookback {
					best = pos + len(bp)
					break
				}
			}
			end = best
			for end > start+1 && end < len(text) && !utf8.RuneStart(text[end]) {
				end--
			}
		}

		chunks = append(chunks, strings.TrimSpace(text[start:end]))

		if end >= len(text) {
			break
		}
		next := end - overlap
		for next > start && next < len(text) && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// SamplePortfolioContent returns the built-in content used when no content
// file is given to the ingest command.
func SamplePortfolioContent() []*PortfolioContent {
	return []*PortfolioContent{
		{
			Title:    "IDE Portfolio Project",
			Content:  "An IDE-themed portfolio site built with Next.js 14, TypeScript, and Tailwind CSS. Features include tabbed navigation, a terminal-like chat interface with LLM integration, and a case study viewer. The project uses Supabase for vector storage and Mistral AI for chat interactions.",
			Category: types.ContentCategoryProject,
			Tags:     []string{"next.js", "typescript", "tailwind", "llm", "supabase"},
		},
		{
			Title:    "Frontend Development Skills",
			Content:  "Expertise in modern frontend technologies including React, Next.js, TypeScript, and Tailwind CSS. Experienced in building responsive, accessible web applications with clean, maintainable code. Knowledgeable in state management with Zustand, animations with Framer Motion, and styling with CSS-in-JS solutions.",
			Category: types.ContentCategorySkill,
			Tags:     []string{"frontend", "react", "typescript", "ui/ux"},
		},
		{
			Title:    "Backend & API Experience",
			Content:  "Experience building backend systems and APIs with Node.js, Express, and various database technologies. Familiar with RESTful API design, GraphQL, and serverless architectures. Have worked with SQL and NoSQL databases including PostgreSQL, MongoDB, and Supabase.",
			Category: types.ContentCategorySkill,
			Tags:     []string{"backend", "api", "node.js", "databases"},
		},
		{
			Title:    "About Me",
			Content:  "I'm a full-stack developer passionate about creating intuitive, high-performance web applications. With a background in computer science and several years of industry experience, I specialize in React/Next.js ecosystems and modern JavaScript development. I'm particularly interested in the intersection of design and code, creating accessible interfaces, and implementing AI features in web applications.",
			Category: types.ContentCategoryAbout,
			Tags:     []string{"personal", "background"},
		},
	}
}
