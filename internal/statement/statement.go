// Package statement parses INSERT and COPY INTO statements into mutation
// commands.
//
// INSERT goes through the vitess SQL parser. COPY INTO and the trailing
// WITH SINGLE WRITER clause are not MySQL syntax, so they are handled by a
// regex pre-pass before the parser sees the text.
package statement

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"vitess.io/vitess/go/vt/sqlparser"
)

var (
	reSingleWriter = regexp.MustCompile(`(?is)\s+WITH\s+SINGLE\s+WRITER\s*$`)
	reCopyInto     = regexp.MustCompile(`(?is)^COPY\s+INTO\s+([^\s(]+)\s*(?:\(([^)]*)\))?\s*FROM\s+'([^']*)'(?:\s+FILE_FORMAT\s*=?\s*'?([A-Za-z0-9_]+)'?)?$`)
)

var (
	parserOnce      sync.Once
	globalParser    *sqlparser.Parser
	globalParserErr error
)

func getParser() (*sqlparser.Parser, error) {
	parserOnce.Do(func() {
		globalParser, globalParserErr = sqlparser.New(sqlparser.Options{})
	})
	return globalParser, globalParserErr
}

// Parse turns one SQL statement into a mutation command.
func Parse(sql string) (*core.MutationCommand, error) {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSpace(strings.TrimRight(sql, ";"))
	if sql == "" {
		return nil, fmt.Errorf("empty statement")
	}

	singleWriter := false
	if loc := reSingleWriter.FindStringIndex(sql); loc != nil {
		singleWriter = true
		sql = strings.TrimSpace(sql[:loc[0]])
	}

	if m := reCopyInto.FindStringSubmatch(sql); m != nil {
		cmd, err := parseCopyInto(m)
		if err != nil {
			return nil, err
		}
		cmd.SingleWriter = singleWriter
		return cmd, nil
	}
	if hasKeywordPrefix(sql, "COPY") {
		return nil, fmt.Errorf("parsing SQL: malformed COPY INTO statement")
	}

	p, err := getParser()
	if err != nil {
		return nil, fmt.Errorf("creating parser: %w", err)
	}

	stmt, err := p.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	ins, ok := stmt.(*sqlparser.Insert)
	if !ok {
		return nil, planerr.Unsupported("Only INSERT and COPY INTO statements can be planned here.")
	}
	if ins.Action == sqlparser.ReplaceAct {
		return nil, planerr.Unsupported("REPLACE is not supported.")
	}
	if len(ins.OnDup) > 0 {
		return nil, planerr.Unsupported("INSERT ... ON DUPLICATE KEY UPDATE is not supported.")
	}

	if ins.Table == nil {
		return nil, planerr.Unsupported("INSERT target must be a table name.")
	}
	tn, ok := ins.Table.Expr.(sqlparser.TableName)
	if !ok {
		return nil, planerr.Unsupported("INSERT target must be a table name.")
	}

	var target core.TablePath
	if q := tn.Qualifier.String(); q != "" {
		target = core.NewTablePath(q, tn.Name.String())
	} else {
		target = core.NewTablePath(tn.Name.String())
	}

	fields := make([]string, 0, len(ins.Columns))
	for _, col := range ins.Columns {
		fields = append(fields, col.String())
	}

	return &core.MutationCommand{
		Kind:         core.OperatorInsert,
		Target:       target,
		SingleWriter: singleWriter,
		FieldNames:   fields,
		Source:       sqlparser.String(ins.Rows),
	}, nil
}

func parseCopyInto(m []string) (*core.MutationCommand, error) {
	target, err := core.ParsePath(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing COPY INTO target: %w", err)
	}

	var fields []string
	for _, f := range strings.Split(m[2], ",") {
		if f = strings.Trim(strings.TrimSpace(f), "`\""); f != "" {
			fields = append(fields, f)
		}
	}

	location := m[3]
	if location == "" {
		return nil, fmt.Errorf("parsing SQL: COPY INTO requires a location")
	}

	return &core.MutationCommand{
		Kind:       core.OperatorBulkLoad,
		Target:     target,
		FieldNames: fields,
		BulkLoad: &core.BulkLoadSpec{
			Location:   location,
			FileFormat: strings.ToLower(m[4]),
		},
	}, nil
}

func hasKeywordPrefix(sql, keyword string) bool {
	fields := strings.Fields(sql)
	return len(fields) > 0 && strings.EqualFold(fields[0], keyword)
}
