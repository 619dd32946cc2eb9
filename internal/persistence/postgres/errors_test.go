package postgres

import (
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestConnectivityErrClassification(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		connectivity bool
	}{
		{
			name:         "dropped connection mid query",
			err:          fmt.Errorf("query: %w", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}),
			connectivity: true,
		},
		{
			name:         "unexpected eof from server",
			err:          fmt.Errorf("scan: %w", io.ErrUnexpectedEOF),
			connectivity: true,
		},
		{
			name:         "server connection exception",
			err:          &pgconn.PgError{Code: "08006", Message: "connection failure"},
			connectivity: true,
		},
		{
			name:         "admin shutdown",
			err:          &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"},
			connectivity: true,
		},
		{
			name:         "unique violation is a statement error",
			err:          &pgconn.PgError{Code: "23505", Message: "duplicate key value"},
			connectivity: false,
		},
		{
			name:         "no rows keeps its identity",
			err:          pgx.ErrNoRows,
			connectivity: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.connectivity, connectivityErr(tc.err))
		})
	}
}
