// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidtube/internal/platform/migration"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"postgres", "postgres://u:p@db:5432/vidtube?sslmode=disable", "pgx5://u:p@db:5432/vidtube?sslmode=disable"},
		{"postgresql", "postgresql://u:p@db/vidtube", "pgx5://u:p@db/vidtube"},
		{"already_pgx5", "pgx5://u:p@db/vidtube", "pgx5://u:p@db/vidtube"},
		{"keyword_dsn", "host=db user=u dbname=vidtube", "host=db user=u dbname=vidtube"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, migration.DatabaseURL(tt.in))
		})
	}
}
