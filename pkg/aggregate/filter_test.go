package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCategoryTerms(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: []string{}},
		{raw: "  ", want: []string{}},
		{raw: "Red", want: []string{"Red"}},
		{raw: " Red , Blue Category ,, ", want: []string{"Red", "Blue Category"}},
		{raw: "会議,  社外 ", want: []string{"会議", "社外"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategoryTerms(tt.raw))
		})
	}
}

func TestSubjectCategory(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{subject: "Sync: Weekly", want: "Sync"},
		{subject: "週次：同期", want: "週次"},
		{subject: "Standup", want: "None"},
		{subject: "A:B：C", want: "A"},
		{subject: "A：B:C", want: "A：B"},
		{subject: "  Padded  : topic", want: "Padded"},
		{subject: ": no prefix", want: ""},
		{subject: "", want: "None"},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectCategory(tt.subject))
		})
	}
}

func TestChannelProgress(t *testing.T) {
	progress := NewChannelProgress(1)

	progress.Report(10)
	progress.Report(20) // dropped, buffer full
	assert.Equal(t, 10, <-progress.C)

	progress.Report(100)
	progress.Close()

	got := make([]int, 0)
	for p := range progress.C {
		got = append(got, p)
	}
	assert.Equal(t, []int{100}, got)
	assert.Panics(t, func() { progress.Report(50) })
}

func TestChannelProgress_CompletionWaitsForReader(t *testing.T) {
	// given
	progress := NewChannelProgress(1)
	progress.Report(40)
	delivered := make(chan struct{})

	// when
	go func() {
		progress.Report(100)
		close(delivered)
	}()

	// then
	select {
	case <-delivered:
		t.Fatal("completion was delivered while the buffer was full")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 40, <-progress.C)
	<-delivered
	assert.Equal(t, 100, <-progress.C)
}
