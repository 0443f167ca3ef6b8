package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that an asset name is safe to join into an
// embedded path. Returns ErrInvalidAssetName if the name is empty or
// contains path separators or dots (which could allow extension
// manipulation or traversal).
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
