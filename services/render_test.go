package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawnText struct {
	text     string
	x, y     float64
	fontSize float64
}

type fakeRenderer struct {
	mu          sync.Mutex
	background  []byte
	texts       []drawnText
	pageBreaks  int
	blockOutput chan struct{} // when set, Output blocks until closed
	outputBegan chan struct{}
}

func (f *fakeRenderer) AddBackgroundImage(img []byte, _, _ float64) error {
	f.background = img
	return nil
}

func (f *fakeRenderer) DrawText(text string, x, y, fontSize float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, drawnText{text: text, x: x, y: y, fontSize: fontSize})
}

func (f *fakeRenderer) NextPage() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageBreaks++
	return nil
}

func (f *fakeRenderer) Output() ([]byte, error) {
	if f.outputBegan != nil {
		close(f.outputBegan)
	}
	if f.blockOutput != nil {
		<-f.blockOutput
	}
	return []byte("%PDF-fake"), nil
}

func (f *fakeRenderer) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	for i, t := range f.texts {
		out[i] = t.text
	}
	return out
}

func writeAsset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))
	return path
}

func renderServiceWith(t *testing.T, fake *fakeRenderer) *RenderService {
	t.Helper()
	s := NewRenderService(NewAssetCache(writeAsset(t)))
	s.newRenderer = func() DocumentRenderer { return fake }
	return s
}

func TestRenderDrawsBlocksTopToBottom(t *testing.T) {
	fake := &fakeRenderer{}
	s := renderServiceWith(t, fake)
	c := filledComposer(t)

	out, err := s.Render(c)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, []byte("png-bytes"), fake.background)

	lines := fake.lines()
	require.GreaterOrEqual(t, len(lines), 8)
	serial := c.Invoice().SerialNumber
	assert.Equal(t, "Invoice Serial Number: "+serial, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Date: "))
	assert.Equal(t, "Customer Details:", lines[2])
	assert.Equal(t, "Name: Jane Doe", lines[3])
	assert.Equal(t, "Email: jane@example.com", lines[4])
	assert.Equal(t, "Phone: 5551234567", lines[5])
	assert.Equal(t, "Items:", lines[6])
	assert.Equal(t, "1. Widget - Quantity: 2, Price: $15.00", lines[7])
	assert.Equal(t, "Total Amount: $30.00", lines[len(lines)-1])
}

func TestRenderUsesFixedPitchCursor(t *testing.T) {
	fake := &fakeRenderer{}
	s := renderServiceWith(t, fake)
	c := filledComposer(t)
	c.AddItem()
	require.NoError(t, c.UpdateItem(1, "description", "Gadget"))
	require.NoError(t, c.UpdateItem(1, "quantity", "1"))
	require.NoError(t, c.UpdateItem(1, "price", "5"))

	_, err := s.Render(c)
	require.NoError(t, err)

	var itemYs []float64
	for _, dt := range fake.texts {
		if strings.HasPrefix(dt.text, "1. ") || strings.HasPrefix(dt.text, "2. ") {
			itemYs = append(itemYs, dt.y)
		}
	}
	require.Len(t, itemYs, 2)
	assert.InDelta(t, lineStep, itemYs[1]-itemYs[0], 0.001)
}

func TestRenderPaginatesWhenItemsOverflow(t *testing.T) {
	fake := &fakeRenderer{}
	s := renderServiceWith(t, fake)
	c := filledComposer(t)
	for i := 1; i < 30; i++ {
		c.AddItem()
		require.NoError(t, c.UpdateItem(i, "description", fmt.Sprintf("Item %d", i)))
		require.NoError(t, c.UpdateItem(i, "quantity", "1"))
		require.NoError(t, c.UpdateItem(i, "price", "1"))
	}

	_, err := s.Render(c)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.pageBreaks, "30 items should spill onto a second page")
	itemLines := 0
	for _, line := range fake.lines() {
		if strings.Contains(line, "Quantity:") {
			itemLines++
		}
	}
	assert.Equal(t, 30, itemLines, "every item is drawn despite the page break")
	assert.Equal(t, "Total Amount: $59.00", fake.lines()[len(fake.lines())-1])
}

func TestRenderRequiresValidDraft(t *testing.T) {
	fake := &fakeRenderer{}
	s := renderServiceWith(t, fake)
	c := NewComposer() // blank customer

	_, err := s.Render(c)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, fake.lines(), "nothing is drawn for an invalid draft")
}

func TestRenderAbortsWhenAssetMissing(t *testing.T) {
	s := NewRenderService(NewAssetCache(filepath.Join(t.TempDir(), "missing.png")))
	s.newRenderer = func() DocumentRenderer { return &fakeRenderer{} }

	_, err := s.Render(filledComposer(t))
	var aErr *AssetLoadError
	require.ErrorAs(t, err, &aErr)
}

func TestRenderRejectsReentrantRequests(t *testing.T) {
	block := make(chan struct{})
	began := make(chan struct{})
	fake := &fakeRenderer{blockOutput: block, outputBegan: began}
	s := renderServiceWith(t, fake)
	c := filledComposer(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Render(c)
		done <- err
	}()

	select {
	case <-began:
	case <-time.After(time.Second):
		t.Fatal("first render never started producing output")
	}

	_, err := s.Render(c)
	assert.ErrorIs(t, err, ErrRenderInProgress)

	close(block)
	require.NoError(t, <-done)

	// Once the first render finishes, the next one is accepted again.
	fake2 := &fakeRenderer{}
	s.newRenderer = func() DocumentRenderer { return fake2 }
	_, err = s.Render(c)
	assert.NoError(t, err)
}

func TestRenderGuardIsScopedPerInvoice(t *testing.T) {
	block := make(chan struct{})
	began := make(chan struct{})
	blocked := &fakeRenderer{blockOutput: block, outputBegan: began}
	free := &fakeRenderer{}

	s := NewRenderService(NewAssetCache(writeAsset(t)))
	var mu sync.Mutex
	queue := []DocumentRenderer{blocked, free}
	s.newRenderer = func() DocumentRenderer {
		mu.Lock()
		defer mu.Unlock()
		r := queue[0]
		if len(queue) > 1 {
			queue = queue[1:]
		}
		return r
	}

	c1 := filledComposer(t)
	c2 := filledComposer(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Render(c1)
		done <- err
	}()

	select {
	case <-began:
	case <-time.After(time.Second):
		t.Fatal("first render never started producing output")
	}

	// The pending render blocks its own invoice only.
	_, err := s.Render(c1)
	assert.ErrorIs(t, err, ErrRenderInProgress)
	_, err = s.Render(c2)
	assert.NoError(t, err, "an unrelated invoice renders while another is pending")

	close(block)
	require.NoError(t, <-done)
}

func TestAssetCacheCachesSuccessButNotFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	cache := NewAssetCache(path)

	_, err := cache.Background()
	var aErr *AssetLoadError
	require.ErrorAs(t, err, &aErr)

	// A failed load is retried once the file appears.
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))
	data, err := cache.Background()
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	// A successful load is shared process-wide and not re-read.
	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	data, err = cache.Background()
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}
