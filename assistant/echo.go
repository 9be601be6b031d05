package assistant

import (
	"context"
	"fmt"
)

type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) TryAnswer(_ context.Context, q Query) (*Answer, error) {
	return &Answer{
		Text:   fmt.Sprintf("This is a placeholder answer to: '%s'", q.Prompt),
		Source: "echo",
	}, nil
}
