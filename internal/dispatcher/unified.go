package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/format"
)

// unifiedSearch fans the query out to every live product in parallel. A
// product's failure is reported inline and does not abort the others; the
// whole call fails only when no product returns anything.
func (d *Dispatcher) unifiedSearch(ctx context.Context, args map[string]string) (string, error) {
	query := args["query"]

	type section struct {
		product config.Product
		content string
		err     error
	}
	sections := map[config.Product]*section{}
	var wg sync.WaitGroup
	var mu sync.Mutex

	run := func(p config.Product, search func() (string, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := search()
			mu.Lock()
			sections[p] = &section{product: p, content: content, err: err}
			mu.Unlock()
		}()
	}

	if d.jira != nil {
		run(config.ProductJira, func() (string, error) {
			result, err := d.jira.Search(ctx, query, 10)
			if err != nil {
				return "", err
			}
			return format.IssueList(result), nil
		})
	}
	if d.confluence != nil {
		run(config.ProductConfluence, func() (string, error) {
			result, err := d.confluence.Search(ctx, query, 10)
			if err != nil {
				return "", err
			}
			return format.PageList(result), nil
		})
	}
	if d.bitbucket != nil {
		run(config.ProductBitbucket, func() (string, error) {
			matches, err := d.bitbucket.SearchCode(ctx, "", query)
			if err != nil {
				return "", err
			}
			return format.CodeMatchList(query, matches), nil
		})
	}
	wg.Wait()

	if len(sections) == 0 {
		return "", apperrors.New(apperrors.KindConfigValidation, "no live products to search")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Unified search: %q\n\n", query)
	failed := 0
	for _, p := range config.Products {
		s, ok := sections[p]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", s.product)
		if s.err != nil {
			failed++
			sb.WriteString(errorMessage(s.product, s.err) + "\n\n")
			continue
		}
		sb.WriteString(s.content + "\n")
	}

	if failed == len(sections) {
		return "", apperrors.New(apperrors.KindServer,
			"unified search failed on all %d live product(s)", failed)
	}
	return sb.String(), nil
}

// Demo exercises the in-memory surfaces without any network or live
// product: discovery, vault browsing and a markdown export.
func (d *Dispatcher) Demo(ctx context.Context) (string, error) {
	var sb strings.Builder

	for _, query := range []string{`"JUnit 5 docs"`, "java concurrency", "I want to learn programming"} {
		resp := d.Dispatch(ctx, "discover_resources", map[string]string{"query": query, "limit": "3"})
		if !resp.Success {
			return "", fmt.Errorf("demo discovery failed for %q: %s", query, *resp.Error)
		}
		sb.WriteString(resp.Content + "\n")
	}

	resp := d.Dispatch(ctx, "vault_stats", nil)
	if !resp.Success {
		return "", fmt.Errorf("demo stats failed: %s", *resp.Error)
	}
	sb.WriteString(resp.Content + "\n")

	resp = d.Dispatch(ctx, "export_results", map[string]string{"format": "text"})
	if !resp.Success {
		return "", fmt.Errorf("demo export failed: %s", *resp.Error)
	}
	sb.WriteString(resp.Content)
	return sb.String(), nil
}
