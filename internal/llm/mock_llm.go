package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Stream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan Chunk), args.Error(1)
}

// Chunks returns a closed, pre-filled stream of text fragments.
func Chunks(texts ...string) <-chan Chunk {
	ch := make(chan Chunk, len(texts))
	for _, t := range texts {
		ch <- Chunk{Text: t}
	}
	close(ch)
	return ch
}

// FailingChunks is Chunks followed by a terminal error.
func FailingChunks(err error, texts ...string) <-chan Chunk {
	ch := make(chan Chunk, len(texts)+1)
	for _, t := range texts {
		ch <- Chunk{Text: t}
	}
	ch <- Chunk{Err: err}
	close(ch)
	return ch
}
