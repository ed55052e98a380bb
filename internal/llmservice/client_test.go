package llmservice

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"http 429", fmt.Errorf("API returned unexpected status code: 429"), ErrRateLimited},
		{"rate limit text", fmt.Errorf("openai: Rate limit exceeded"), ErrRateLimited},
		{"http 500", fmt.Errorf("API returned unexpected status code: 500"), ErrModelUnavailable},
		{"network failure", fmt.Errorf("dial tcp: connection refused"), ErrModelUnavailable},
		{"timeout", fmt.Errorf("context deadline exceeded"), ErrModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
