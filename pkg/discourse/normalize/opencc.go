package normalize

import (
	"fmt"
	"sync"

	"github.com/longbridgeapp/opencc"
)

// OpenCC converts text with an OpenCC profile, matching phrases before
// single characters.
type OpenCC struct {
	cc *opencc.OpenCC
}

// NewOpenCC loads the named OpenCC profile, for example "t2s".
func NewOpenCC(profile string) (*OpenCC, error) {
	cc, err := opencc.New(profile)
	if err != nil {
		return nil, fmt.Errorf("load opencc profile %q: %w", profile, err)
	}
	return &OpenCC{cc: cc}, nil
}

// Convert returns text unchanged when the dictionaries reject it.
func (c *OpenCC) Convert(text string) string {
	out, err := c.cc.Convert(text)
	if err != nil {
		return text
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultConv *OpenCC
	defaultErr  error
)

// DefaultConverter returns the shared traditional→simplified converter.
func DefaultConverter() (*OpenCC, error) {
	defaultOnce.Do(func() {
		defaultConv, defaultErr = NewOpenCC("t2s")
	})
	return defaultConv, defaultErr
}
