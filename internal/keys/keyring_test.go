package keys

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keysListOutput = `[{"name":"dev0","type":"local","address":"evmos1hafptm4zxy7y4fj6j7m6fj5n89v2zjy5l7ltae","pubkey":"{\"@type\":\"/ethermint.crypto.v1.ethsecp256k1.PubKey\",\"key\":\"A1\"}"},` +
	`{"name":"dev1","type":"ledger","address":"evmos1qqqqhe5pnaq5qq39wqkn957aydnrm45sdn8583","pubkey":""}]`

func TestCLIKeyringListKeys(t *testing.T) {
	var gotName string
	var gotArgs []string
	k := &CLIKeyring{
		Binary:  "evmosd",
		Home:    "/home/val/.evmosd",
		Backend: "test",
		Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return []byte("WARNING: keyring migrated\n" + keysListOutput), nil
		},
	}

	entries, err := k.ListKeys(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "evmosd", gotName)
	assert.Equal(t, []string{"keys", "list", "--home", "/home/val/.evmosd", "--output", "json", "--keyring-backend", "test"}, gotArgs)
	require.Len(t, entries, 2)
	assert.Equal(t, "dev0", entries[0].Name)
	assert.Equal(t, "evmos1hafptm4zxy7y4fj6j7m6fj5n89v2zjy5l7ltae", entries[0].Address)
	assert.Equal(t, "ledger", entries[1].Type)
}

func TestCLIKeyringErrors(t *testing.T) {
	cases := []struct {
		name string
		run  Runner
	}{
		{
			name: "command fails",
			run: func(context.Context, string, ...string) ([]byte, error) {
				return nil, errors.New("exec: \"evmosd\": executable file not found in $PATH")
			},
		},
		{
			name: "garbage output",
			run: func(context.Context, string, ...string) ([]byte, error) {
				return []byte("not json"), nil
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := &CLIKeyring{Binary: "evmosd", Home: t.TempDir(), Run: tc.run}
			_, err := k.ListKeys(context.Background())
			assert.ErrorIs(t, err, ErrKeyringUnavailable)
		})
	}
}
