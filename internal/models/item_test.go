package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateItemRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateItemRequest
		invalid []string
	}{
		{name: "complete", req: CreateItemRequest{Title: "A", URL: "http://x", Description: "d", Amount: 5}},
		{name: "title only", req: CreateItemRequest{Title: "A"}},
		{name: "negative amount passes through", req: CreateItemRequest{Title: "A", Amount: -3}},
		{name: "empty title", req: CreateItemRequest{URL: "http://x"}, invalid: []string{"title"}},
		{name: "blank title", req: CreateItemRequest{Title: "   "}, invalid: []string{"title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			require.Len(t, errs, len(tt.invalid))
			for _, field := range tt.invalid {
				require.Contains(t, errs, field)
			}
		})
	}
}

func TestCreateItemRequest_Matches(t *testing.T) {
	req := CreateItemRequest{Title: "A", URL: "http://x", Description: "d", Amount: 5}

	require.True(t, req.Matches(&Item{ID: "some-id", Title: "A", URL: "http://x", Description: "d", Amount: 5}))
	require.False(t, req.Matches(&Item{Title: "A", URL: "http://x", Description: "d", Amount: 6}))
	require.False(t, req.Matches(&Item{Title: "B", URL: "http://x", Description: "d", Amount: 5}))
	require.False(t, req.Matches(nil))
}
