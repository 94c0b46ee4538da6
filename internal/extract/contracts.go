package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Document locates an uploaded contract in object storage.
type Document struct {
	Account   string
	Container string
	Path      string // blob path inside Container, folder included
	Folder    string
	Name      string
	URL       string
}

// PageExtractor is stage 1: document -> page text.
type PageExtractor interface {
	ExtractPages(ctx context.Context, doc Document) (PageTextBundle, error)
}

// SemanticExtractor is stage 2: page text -> raw JSON text. The result is
// not guaranteed to be well formed.
type SemanticExtractor interface {
	InferContractSemantics(ctx context.Context, bundle PageTextBundle) (string, error)
}

const pagePrefix = "Page-"

// PageTextBundle holds recognized lines per page. Pages[0] is "Page-1".
type PageTextBundle struct {
	Pages [][]string
}

func NewBundle(pages ...[]string) PageTextBundle {
	return PageTextBundle{Pages: pages}
}

// IsEmpty reports whether no page carries any non-blank line.
func (b PageTextBundle) IsEmpty() bool {
	for _, p := range b.Pages {
		for _, ln := range p {
			if strings.TrimSpace(ln) != "" {
				return false
			}
		}
	}
	return true
}

func (b PageTextBundle) Lines() int {
	n := 0
	for _, p := range b.Pages {
		n += len(p)
	}
	return n
}

// Text renders the bundle as plain text with a header per page.
func (b PageTextBundle) Text() string {
	var sb strings.Builder
	for i, p := range b.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s%d:\n", pagePrefix, i+1)
		for _, ln := range p {
			sb.WriteString(ln)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// MarshalJSON writes {"Page-1": [...], "Page-2": [...]} in page order.
func (b PageTextBundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range b.Pages {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", pagePrefix+strconv.Itoa(i+1))
		if p == nil {
			p = []string{}
		}
		lines, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(lines)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the "Page-N" layout. Pages are ordered by N and
// gaps become empty pages.
func (b *PageTextBundle) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nums := make([]int, 0, len(raw))
	byNum := make(map[int][]string, len(raw))
	for k, lines := range raw {
		n, err := strconv.Atoi(strings.TrimPrefix(k, pagePrefix))
		if !strings.HasPrefix(k, pagePrefix) || err != nil || n < 1 {
			return fmt.Errorf("invalid page key %q", k)
		}
		nums = append(nums, n)
		byNum[n] = lines
	}
	sort.Ints(nums)

	b.Pages = nil
	if len(nums) == 0 {
		return nil
	}
	b.Pages = make([][]string, nums[len(nums)-1])
	for _, n := range nums {
		b.Pages[n-1] = byNum[n]
	}
	return nil
}
