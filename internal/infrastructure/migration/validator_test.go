package migration

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/linkmarket/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		kinds []IssueKind
	}{
		{
			name: "plain sql",
			sql: `-- Migration: add niches
CREATE TABLE niche_rules (
    outlet_id UUID NOT NULL,
    niche VARCHAR(32) NOT NULL,
    note TEXT DEFAULT 'type: string'
);`,
		},
		{
			name:  "module import",
			sql:   "import { createClient } from '@supabase/supabase-js';",
			kinds: []IssueKind{IssueScriptImport},
		},
		{
			name:  "require import",
			sql:   "import pg = require('pg');",
			kinds: []IssueKind{IssueScriptImport},
		},
		{
			name:  "react import",
			sql:   "import React from 'react';",
			kinds: []IssueKind{IssueScriptImport, IssueReactImport},
		},
		{
			name:  "typed declaration",
			sql:   "export interface Outlet { domain: string }",
			kinds: []IssueKind{IssueTypeScript},
		},
		{
			name: "sql comment mentioning types",
			sql:  "-- const price: number is stored as NUMERIC",
		},
		{
			name:  "script comments",
			sql:   "// seed data\nSELECT 1;\n/* block\nstill block */",
			kinds: []IssueKind{IssueScriptComment, IssueScriptComment, IssueScriptComment},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := ValidateSQL("000002_test.up.sql", strings.NewReader(tt.sql))
			require.NoError(t, err)

			var kinds []IssueKind
			for _, issue := range issues {
				kinds = append(kinds, issue.Kind)
				assert.Equal(t, "000002_test.up.sql", issue.File)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestValidateSQL_ReportsLineNumbers(t *testing.T) {
	sql := "CREATE TABLE a (id INT);\n\n  const limit: number = 5;\n"
	issues, err := ValidateSQL("000003_a.up.sql", strings.NewReader(sql))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Line)
	assert.Equal(t, "const limit: number = 5;", issues[0].Text)
	assert.Equal(t, "000003_a.up.sql:3: typescript: const limit: number = 5;", issues[0].String())
}

func TestValidateFS(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_init.up.sql":     {Data: []byte("CREATE TABLE profiles (id UUID PRIMARY KEY);\n")},
		"000001_init.down.sql":   {Data: []byte("DROP TABLE profiles;\n")},
		"000002_broken.up.sql":   {Data: []byte("import { Outlet } from './types';\nCREATE TABLE x (id INT);\n// done\n")},
		"000002_broken.down.sql": {Data: []byte("DROP TABLE x;\n")},
		"README.md":              {Data: []byte("import x from 'y'")},
	}

	report, err := ValidateFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_init.down.sql", "000001_init.up.sql",
		"000002_broken.down.sql", "000002_broken.up.sql",
	}, report.Files)
	assert.False(t, report.Clean())
	assert.Equal(t, 1, report.FilesWithIssues)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, IssueScriptImport, report.Issues[0].Kind)
	assert.Equal(t, 1, report.Issues[0].Line)
	assert.Equal(t, IssueScriptComment, report.Issues[1].Kind)
	assert.Equal(t, 3, report.Issues[1].Line)
}

func TestValidateFS_EmbeddedMigrationsAreClean(t *testing.T) {
	report, err := ValidateFS(migrations.FS)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Files)
	assert.True(t, report.Clean(), "issues: %v", report.Issues)
}
