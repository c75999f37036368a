package crawler

import (
	"context"
	"sync"
	"testing"
)

func TestAdmitterAdmit(t *testing.T) {
	t.Parallel()

	t.Run("empty allow-list admits http and https only", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		a := NewAdmitter(NewShardedSeenSet(), f, 3, nil, nil)
		n, err := a.Admit(context.Background(), []string{"https://a.com", "http://b.com", "ftp://c.com"}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 || f.Len() != 2 {
			t.Errorf("admitted %d (frontier %d), want 2", n, f.Len())
		}
	})

	t.Run("allow-list restricts by prefix", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		seen := NewShardedSeenSet()
		a := NewAdmitter(seen, f, 3, []string{"https://good.example"}, nil)
		n, err := a.Admit(context.Background(), []string{"https://good.example/a", "https://evil.example/b"}, 1)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("admitted %d, want 1", n)
		}
		e, _ := f.TryPop()
		if e.URL != "https://good.example/a" || e.Depth != 2 {
			t.Errorf("unexpected entry %+v", e)
		}
		if ok, _ := seen.Contains(context.Background(), "https://evil.example/b"); ok {
			t.Error("rejected link must not enter the seen set")
		}
	})

	t.Run("already seen links are not pushed twice", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		a := NewAdmitter(NewShardedSeenSet(), f, 3, nil, nil)
		links := []string{"https://a.com/x", "https://a.com/x"}
		if n, _ := a.Admit(context.Background(), links, 0); n != 1 {
			t.Errorf("first Admit admitted %d, want 1", n)
		}
		if n, _ := a.Admit(context.Background(), links, 0); n != 0 {
			t.Errorf("second Admit admitted %d, want 0", n)
		}
	})

	t.Run("URL variants of one page are admitted once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		a := NewAdmitter(NewShardedSeenSet(), f, 3, nil, nil)
		links := []string{"https://a.com/x", "https://a.com/x/", "https://A.com/x#usage", "HTTPS://a.com/x#api"}
		if n, _ := a.Admit(context.Background(), links, 0); n != 1 {
			t.Errorf("admitted %d, want 1", n)
		}
		if e, _ := f.TryPop(); e.URL != "https://a.com/x" {
			t.Errorf("pushed %q, want normalized URL", e.URL)
		}
	})

	t.Run("depth bound", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		a := NewAdmitter(NewShardedSeenSet(), f, 1, nil, nil)
		if n, _ := a.Admit(context.Background(), []string{"https://a.com/deep"}, 1); n != 0 {
			t.Errorf("admitted %d beyond max depth", n)
		}
	})

	t.Run("ignore patterns", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		a := NewAdmitter(NewShardedSeenSet(), f, 3, nil, []string{"/blog/*", "*.zip"})
		links := []string{"https://a.com/blog/post", "https://a.com/files/x.zip", "https://a.com/docs"}
		if n, _ := a.Admit(context.Background(), links, 0); n != 1 {
			t.Errorf("admitted %d, want 1", n)
		}
	})
}

func TestAdmitterConcurrentAdmission(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	a := NewAdmitter(NewShardedSeenSet(), f, 5, nil, nil)
	links := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3"}

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Admit(context.Background(), links, 0)
		}()
	}
	wg.Wait()

	counts := make(map[string]int)
	for {
		e, ok := f.TryPop()
		if !ok {
			break
		}
		counts[e.URL]++
	}
	for _, link := range links {
		if counts[link] != 1 {
			t.Errorf("%s enqueued %d times, want 1", link, counts[link])
		}
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{pattern: "/admin/*", path: "/admin", want: true},
		{pattern: "/admin/*", path: "/admin/users", want: true},
		{pattern: "/admin/*", path: "/administrator", want: false},
		{pattern: "*.pdf", path: "/docs/file.pdf", want: true},
		{pattern: "*.pdf", path: "/docs/file.html", want: false},
		{pattern: "/api/v?", path: "/api/v1", want: true},
		{pattern: "[", path: "/x", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "https://example.com/", want: "https://example.com"},
		{in: "https://example.com", want: "https://example.com"},
		{in: "HTTPS://Example.COM/Docs/", want: "https://example.com/Docs"},
		{in: "https://example.com/a#usage", want: "https://example.com/a"},
		{in: "https://example.com/a/?q=1#x", want: "https://example.com/a/?q=1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
