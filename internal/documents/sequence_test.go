package documents

import (
	"context"
	"sync"
	"testing"
	"time"

	"staysync-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seqNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func setupSequenceTest(t *testing.T) (*Sequence, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Document{}, &domain.DocumentSequence{}))
	return &Sequence{DB: db, Now: func() time.Time { return seqNow }}, db
}

func TestNextNumberSharedAcrossKinds(t *testing.T) {
	seq, _ := setupSequenceTest(t)
	ctx := context.Background()

	n1, err := seq.NextNumber(ctx, domain.DocumentKindQuote, 2025)
	require.NoError(t, err)
	n2, err := seq.NextNumber(ctx, domain.DocumentKindInvoice, 2025)
	require.NoError(t, err)
	n3, err := seq.NextNumber(ctx, domain.DocumentKindQuote, 2025)
	require.NoError(t, err)

	// One shared counter: strictly increasing regardless of kind.
	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)
	assert.Equal(t, 3, n3)
}

func TestNextNumberConcurrentCallersGetDistinctValues(t *testing.T) {
	seq, db := setupSequenceTest(t)
	ctx := context.Background()
	const callers = 20

	// One pooled connection so sqlite serializes the write transactions
	// instead of surfacing busy errors.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	values := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.NextNumber(ctx, domain.DocumentKindInvoice, 2025)
			assert.NoError(t, err)
			values <- n
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int]bool, callers)
	for n := range values {
		assert.False(t, seen[n], "number %d issued twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, callers)

	// Counter ends exactly at the number of callers: no gaps, no reuse.
	next, err := seq.NextNumber(ctx, domain.DocumentKindInvoice, 2025)
	require.NoError(t, err)
	assert.Equal(t, callers+1, next)
}

func TestNextNumberPerYearCounters(t *testing.T) {
	seq, _ := setupSequenceTest(t)
	ctx := context.Background()

	n2025, err := seq.NextNumber(ctx, domain.DocumentKindQuote, 2025)
	require.NoError(t, err)
	n2026, err := seq.NextNumber(ctx, domain.DocumentKindQuote, 2026)
	require.NoError(t, err)

	assert.Equal(t, 1, n2025)
	assert.Equal(t, 1, n2026)
}

func TestNextNumberRejectsUnknownKind(t *testing.T) {
	seq, _ := setupSequenceTest(t)
	_, err := seq.NextNumber(context.Background(), "receipt", 2025)
	assert.Error(t, err)
}

func TestNumberForIdempotent(t *testing.T) {
	seq, _ := setupSequenceTest(t)
	ctx := context.Background()

	first, err := seq.NumberFor(ctx, "res-1", domain.DocumentKindQuote)
	require.NoError(t, err)
	assert.Equal(t, "Q-2025-0001", first)

	// Re-asking never re-issues.
	again, err := seq.NumberFor(ctx, "res-1", domain.DocumentKindQuote)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	next, err := seq.NextNumber(ctx, domain.DocumentKindQuote, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestNumberForInvoiceMatchesQuoteDigits(t *testing.T) {
	seq, _ := setupSequenceTest(t)
	ctx := context.Background()

	quote, err := seq.NumberFor(ctx, "res-1", domain.DocumentKindQuote)
	require.NoError(t, err)
	assert.Equal(t, "Q-2025-0001", quote)

	// Burn a number for an unrelated reservation in between.
	_, err = seq.NumberFor(ctx, "res-2", domain.DocumentKindQuote)
	require.NoError(t, err)

	invoice, err := seq.NumberFor(ctx, "res-1", domain.DocumentKindInvoice)
	require.NoError(t, err)
	// Same digits as the quote, different prefix.
	assert.Equal(t, "INV-2025-0001", invoice)
}

func TestSetSequencePinsCounter(t *testing.T) {
	seq, _ := setupSequenceTest(t)
	ctx := context.Background()

	require.NoError(t, seq.SetSequence(ctx, 2025, 41))
	n, err := seq.NextNumber(ctx, domain.DocumentKindInvoice, 2025)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	// Correcting an existing counter works too.
	require.NoError(t, seq.SetSequence(ctx, 2025, 99))
	n, err = seq.NextNumber(ctx, domain.DocumentKindInvoice, 2025)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-2025-0042", FormatNumber("INV-", 2025, 42))
	assert.Equal(t, "Q-2025-1234", FormatNumber("Q-", 2025, 1234))
}
