package classifier

import (
	"sync"
	"testing"
)

func TestIsAdvertisingCaseInsensitive(t *testing.T) {
	if !IsAdvertising("Check this SALE!") {
		t.Fatalf("expected SALE to be flagged")
	}
	if IsAdvertising("hello world") {
		t.Fatalf("expected clean text")
	}
}

func TestIsAdvertisingSubstring(t *testing.T) {
	cases := []string{
		"hippopromo",
		"visit t.me/spam",
		"short link bit.ly/x",
		"BUY NOW while it lasts",
		"https://example.com",
		"we advertise here",
		"20% DISCOUNT",
	}
	for _, text := range cases {
		if !IsAdvertising(text) {
			t.Fatalf("expected %q to be flagged", text)
		}
	}
	if IsAdvertising("") {
		t.Fatalf("empty text must not be flagged")
	}
	if IsAdvertising("buy it now") {
		t.Fatalf("phrase markers must match contiguously")
	}
}

func TestClassifierFindMarkers(t *testing.T) {
	c := New()
	got := c.FindMarkers("PROMO sale at https://x")
	if len(got) != 4 {
		t.Fatalf("expected http, https, promo, sale; got %v", got)
	}
}

func TestClassifierReplaceAll(t *testing.T) {
	c := New()
	c.ReplaceAll([]string{"casino", "casino", " ", "Crypto Pump"})
	if c.Count() != 2 {
		t.Fatalf("expected 2 markers, got %d", c.Count())
	}
	if c.IsAdvertising("big SALE") {
		t.Fatalf("default markers must be replaced")
	}
	if !c.IsAdvertising("join the crypto pump") {
		t.Fatalf("expected replaced marker to match")
	}
}

func TestClassifierConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.IsAdvertising("SALE sale")
			_ = c.AddMarker("x")
			_ = c.RemoveMarker("x")
		}()
	}
	wg.Wait()
}
