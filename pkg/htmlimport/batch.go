package htmlimport

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Page is the harvest of one saved page.
type Page struct {
	Path    string
	Title   string
	Entries []string
	Err     error
}

// HarvestFiles extracts and harvests every file using a fixed number of
// worker goroutines. Results keep the order of paths. A failing file sets
// its Page.Err and does not stop the others; files not reached before ctx is
// done carry ctx.Err().
func HarvestFiles(ctx context.Context, paths []string, window, workers int) []Page {
	if workers <= 0 {
		workers = 1
	}
	pages := make([]Page, len(paths))
	for i, p := range paths {
		pages[i] = Page{Path: p}
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					pages[i].Err = err
					continue
				}
				harvestFile(&pages[i], window)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return pages
}

func harvestFile(p *Page, window int) {
	f, err := os.Open(p.Path)
	if err != nil {
		p.Err = fmt.Errorf("open %s: %w", p.Path, err)
		return
	}
	defer f.Close()

	pageURL := &url.URL{Scheme: "file", Path: "/"}
	if abs, err := filepath.Abs(p.Path); err == nil {
		pageURL.Path = filepath.ToSlash(abs)
	}
	article, err := ExtractText(f, pageURL)
	if err != nil {
		p.Err = fmt.Errorf("%s: %w", p.Path, err)
		return
	}
	p.Title = article.Title
	p.Entries = Harvest(article.Text, window)
}
