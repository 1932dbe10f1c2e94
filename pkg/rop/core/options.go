package core

import "context"

type OptionKey string

const (
	StageOptionKey OptionKey = "stage_options"
)

type StageOptions struct {
	Name string
}

// WithStageName marks ctx as belonging to the named stage. Workers attach it
// before calling their processor.
func WithStageName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, StageOptionKey, StageOptions{Name: name})
}

// StageName returns the stage a processor runs in, or defaultName outside a worker.
func StageName(ctx context.Context, defaultName string) string {
	options, ok := ctx.Value(StageOptionKey).(StageOptions)
	if ok {
		return options.Name
	}
	return defaultName
}
