package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// memConn：记录事务生命周期事件的内存驱动，校验分批提交与出错回滚
type memConn struct {
	events   []string
	failOnID int64
}

type memDriver struct{ c *memConn }

func (d *memDriver) Open(string) (driver.Conn, error) { return d.c, nil }

func (c *memConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("unused") }
func (c *memConn) Close() error                        { return nil }

func (c *memConn) Begin() (driver.Tx, error) {
	c.events = append(c.events, "begin")
	return &memTx{c: c}, nil
}

func (c *memConn) ExecContext(_ context.Context, _ string, args []driver.NamedValue) (driver.Result, error) {
	if c.failOnID != 0 && len(args) > 0 {
		if id, ok := args[0].Value.(int64); ok && id == c.failOnID {
			return nil, errors.New("写入失败")
		}
	}
	c.events = append(c.events, "exec")
	return driver.RowsAffected(1), nil
}

type memTx struct{ c *memConn }

func (t *memTx) Commit() error {
	t.c.events = append(t.c.events, "commit")
	return nil
}

func (t *memTx) Rollback() error {
	t.c.events = append(t.c.events, "rollback")
	return nil
}

func (c *memConn) count(event string) int {
	n := 0
	for _, e := range c.events {
		if e == event {
			n++
		}
	}
	return n
}

func areaCSV(rows int) string {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "%d,区域%d\n", i, i)
	}
	return b.String()
}

func TestImportAreas(t *testing.T) {
	conn := &memConn{}
	sql.Register("area-mem-ok", &memDriver{c: conn})
	db, err := sql.Open("area-mem-ok", "")
	assert.NoError(t, err)

	count, skipped, err := importAreas(db, strings.NewReader(areaCSV(3)+"abc,坏行\n7,\n"))
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 1, conn.count("commit"))
}

func TestImportAreasBatchCommit(t *testing.T) {
	conn := &memConn{}
	sql.Register("area-mem-batch", &memDriver{c: conn})
	db, err := sql.Open("area-mem-batch", "")
	assert.NoError(t, err)

	// 5001 行：第 5000 行触发分批提交并重开事务
	count, skipped, err := importAreas(db, strings.NewReader(areaCSV(5001)))
	assert.NoError(t, err)
	assert.Equal(t, 5001, count)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 2, conn.count("begin"))
	assert.Equal(t, 2, conn.count("commit"))
}

func TestImportAreasRollsBackCurrentTx(t *testing.T) {
	conn := &memConn{failOnID: 5001}
	sql.Register("area-mem-fail", &memDriver{c: conn})
	db, err := sql.Open("area-mem-fail", "")
	assert.NoError(t, err)

	// 分批提交后的第二个事务内出错：回滚的必须是重开的事务
	count, _, err := importAreas(db, strings.NewReader(areaCSV(5001)))
	assert.Error(t, err)
	assert.Equal(t, 5000, count)
	assert.Equal(t, 2, conn.count("begin"))
	assert.Equal(t, 1, conn.count("commit"))
	assert.Equal(t, 1, conn.count("rollback"))
	assert.Equal(t, "rollback", conn.events[len(conn.events)-1])
}

func TestImportAreasMissingColumns(t *testing.T) {
	conn := &memConn{}
	sql.Register("area-mem-cols", &memDriver{c: conn})
	db, err := sql.Open("area-mem-cols", "")
	assert.NoError(t, err)

	_, _, err = importAreas(db, strings.NewReader("编号,名称\n1,区域\n"))
	assert.Error(t, err)
}
