package repository

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
)

// The bulk write path streams rows to MySQL through LOAD DATA LOCAL INFILE
// using the driver's Reader:: handler, one round trip per batch. The column
// list of every loader must match its row-insert fallback exactly; drift
// between the two paths corrupts the audit tables silently.

var bulkLoadSeq uint64

const tsvTimeLayout = "2006-01-02 15:04:05"

// bulkLoad registers buf under a unique handler name and executes the given
// LOAD DATA statement with the handler name substituted for %s.
func bulkLoad(exec func(query string) error, statement string, buf *bytes.Buffer) error {
	name := fmt.Sprintf("bulk_%d", atomic.AddUint64(&bulkLoadSeq, 1))

	mysql.RegisterReaderHandler(name, func() io.Reader {
		return bytes.NewReader(buf.Bytes())
	})
	defer mysql.DeregisterReaderHandler(name)

	return exec(fmt.Sprintf(statement, "Reader::"+name))
}

func tsvEscape(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\t", "\\t",
		"\n", "\\n",
		"\r", "\\r",
	)
	return replacer.Replace(s)
}

func tsvString(s string) string {
	return tsvEscape(s)
}

func tsvNullString(s *string) string {
	if s == nil {
		return "\\N"
	}
	return tsvEscape(*s)
}

func tsvInt(v int) string {
	return fmt.Sprintf("%d", v)
}

func tsvInt64(v int64) string {
	return fmt.Sprintf("%d", v)
}

func tsvNullInt64(v *int64) string {
	if v == nil {
		return "\\N"
	}
	return fmt.Sprintf("%d", *v)
}

func tsvTime(t time.Time) string {
	return t.Format(tsvTimeLayout)
}

func tsvNullTime(t *time.Time) string {
	if t == nil {
		return "\\N"
	}
	return t.Format(tsvTimeLayout)
}

func writeTSVRow(buf *bytes.Buffer, fields ...string) {
	buf.WriteString(strings.Join(fields, "\t"))
	buf.WriteByte('\n')
}
