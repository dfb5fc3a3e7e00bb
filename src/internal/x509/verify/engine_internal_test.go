// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorArgsCleanup(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.pem")
	two := filepath.Join(dir, "two.pem")
	require.NoError(t, os.WriteFile(one, []byte("bundle one\n"), 0o644))
	require.NoError(t, os.WriteFile(two, []byte("bundle two\n"), 0o644))

	engine := &OpenSSLEngine{}

	// caFileArg extracts the -CAfile value from the argument list.
	caFileArg := func(args []string) string {
		for i, arg := range args {
			if arg == "-CAfile" && i+1 < len(args) {
				return args[i+1]
			}
		}
		return ""
	}

	t.Run("Merged Bundle Removed", func(t *testing.T) {
		args, cleanup, err := engine.anchorArgs(Anchors{Files: []string{one, two}})
		require.NoError(t, err, "anchorArgs() error")

		merged := caFileArg(args)
		require.NotEmpty(t, merged, "no -CAfile argument produced")
		require.NotEqual(t, one, merged, "two anchor files must merge into a temporary bundle")

		data, err := os.ReadFile(merged)
		require.NoError(t, err, "merged bundle must exist before cleanup")
		assert.Equal(t, "bundle one\nbundle two\n", string(data), "merged bundle content mismatch")

		cleanup()
		_, err = os.Stat(merged)
		assert.True(t, os.IsNotExist(err), "cleanup must remove the merged bundle")
	})

	t.Run("Single File Passed Through", func(t *testing.T) {
		args, cleanup, err := engine.anchorArgs(Anchors{Files: []string{one}})
		require.NoError(t, err, "anchorArgs() error")
		cleanup()

		assert.Equal(t, one, caFileArg(args), "a single anchor file is used directly")
		_, err = os.Stat(one)
		assert.NoError(t, err, "cleanup must not remove a caller-owned anchor file")
	})

	t.Run("No Files", func(t *testing.T) {
		args, cleanup, err := engine.anchorArgs(Anchors{Dirs: []string{dir}})
		require.NoError(t, err, "anchorArgs() error")
		cleanup()

		assert.Empty(t, caFileArg(args), "no -CAfile expected without anchor files")
		assert.Contains(t, args, "-CApath", "anchor directories map to -CApath")
	})
}
