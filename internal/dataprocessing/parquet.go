package dataprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"

	apperrors "covidvax/internal/errors"
	"covidvax/pkg/contracts/domain"
)

// parquetMagic opens and closes every parquet file
var parquetMagic = []byte("PAR1")

// julianUnixEpoch is the Julian day number of 1970-01-01
const julianUnixEpoch = 2440588

// isParquet reports whether data starts with the parquet magic bytes
func isParquet(data []byte) bool {
	return bytes.HasPrefix(data, parquetMagic)
}

// dateDecoder converts a non-null date cell of one physical/logical type
type dateDecoder func(parquet.Value) rawDate

type parquetColumns struct {
	date   int
	state  int
	counts [4]int
}

// decodeParquet reads a parquet payload row by row, feeding b
func decodeParquet(data []byte, b *recordBuilder) error {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return apperrors.NewMalformedDataError("payload is not a readable parquet file", err)
	}

	schema := f.Schema()
	leaves, err := lookupParquetColumns(schema)
	if err != nil {
		return err
	}

	decodeDate, err := parquetDateDecoder(leaves[domain.ColumnDate].Node)
	if err != nil {
		return err
	}

	if typ := leaves[domain.ColumnState].Node.Type(); typ.Kind() != parquet.ByteArray {
		return apperrors.NewMalformedDataError(
			fmt.Sprintf("column %s has type %s, want string", domain.ColumnState, typ), nil).
			WithContext("column", domain.ColumnState)
	}

	cols := parquetColumns{
		date:  leaves[domain.ColumnDate].ColumnIndex,
		state: leaves[domain.ColumnState].ColumnIndex,
	}
	for i, name := range domain.CountColumns {
		leaf := leaves[name]
		switch leaf.Node.Type().Kind() {
		case parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
		default:
			return apperrors.NewMalformedDataError(
				fmt.Sprintf("column %s has type %s, want a number", name, leaf.Node.Type()), nil).
				WithContext("column", name)
		}
		cols.counts[i] = leaf.ColumnIndex
	}

	width := len(schema.Columns())
	cells := make([]parquet.Value, width)
	buf := make([]parquet.Row, 512)
	rowNum := 0

	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, readErr := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rowNum++
				for i := range cells {
					cells[i] = parquet.Value{}
				}
				for _, v := range row {
					if c := v.Column(); c >= 0 && c < width {
						cells[c] = v
					}
				}

				rec, err := parquetRecord(cells, cols, decodeDate, rowNum)
				if err != nil {
					rows.Close()
					return err
				}
				b.add(rec)
			}
			if errors.Is(readErr, io.EOF) {
				break
			}
			if readErr != nil {
				rows.Close()
				return apperrors.NewMalformedDataError("failed to read parquet rows", readErr).
					WithContext("row", rowNum)
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return apperrors.NewMalformedDataError("failed to read parquet rows", err)
		}
	}
	return nil
}

// lookupParquetColumns resolves the required columns by name with the same
// case-insensitive rule the CSV decoder applies to its header.
func lookupParquetColumns(schema *parquet.Schema) (map[string]parquet.LeafColumn, error) {
	names := make(map[string]string, len(schema.Fields()))
	for _, field := range schema.Fields() {
		key := columnKey(field.Name())
		if _, seen := names[key]; !seen {
			names[key] = field.Name()
		}
	}

	leaves := make(map[string]parquet.LeafColumn, len(requiredColumns))
	for _, name := range requiredColumns {
		actual, ok := names[name]
		if !ok {
			return nil, missingColumnError(name)
		}
		leaf, ok := schema.Lookup(actual)
		if !ok {
			return nil, missingColumnError(name)
		}
		leaves[name] = leaf
	}
	return leaves, nil
}

func parquetRecord(cells []parquet.Value, cols parquetColumns, decodeDate dateDecoder, row int) (rawRecord, error) {
	rec := rawRecord{row: row, date: nullDate()}

	if d := cells[cols.date]; !d.IsNull() {
		rec.date = decodeDate(d)
	}
	if s := cells[cols.state]; !s.IsNull() {
		rec.state = string(s.ByteArray())
	}

	for i, idx := range cols.counts {
		name := domain.CountColumns[i]
		v := cells[idx]
		if v.IsNull() {
			return rec, badCountError(name, row, "count is null")
		}

		var n int64
		var err error
		switch v.Kind() {
		case parquet.Int32:
			n, err = countFromInt(name, row, int64(v.Int32()))
		case parquet.Int64:
			n, err = countFromInt(name, row, v.Int64())
		case parquet.Float:
			n, err = countFromFloat(name, row, float64(v.Float()))
		case parquet.Double:
			n, err = countFromFloat(name, row, v.Double())
		default:
			err = badCountError(name, row, fmt.Sprintf("unexpected %s value", v.Kind()))
		}
		if err != nil {
			return rec, err
		}
		rec.counts[i] = n
	}
	return rec, nil
}

// parquetDateDecoder picks the conversion for the date column from its
// physical and logical types.
func parquetDateDecoder(node parquet.Node) (dateDecoder, error) {
	typ := node.Type()
	logical := typ.LogicalType()

	var converted deprecated.ConvertedType = -1
	if ct := typ.ConvertedType(); ct != nil {
		converted = *ct
	}

	switch typ.Kind() {
	case parquet.ByteArray:
		return func(v parquet.Value) rawDate {
			return textDate(string(v.ByteArray()))
		}, nil

	case parquet.Int32:
		if (logical == nil || logical.Date == nil) && converted != deprecated.Date {
			return nil, apperrors.NewMalformedDataError(
				"column date is an int32 without a date annotation", nil).
				WithContext("column", domain.ColumnDate)
		}
		// days since the unix epoch
		return func(v parquet.Value) rawDate {
			return timeDate(time.Unix(int64(v.Int32())*86400, 0).UTC())
		}, nil

	case parquet.Int64:
		unit := time.Duration(0)
		switch {
		case logical != nil && logical.Timestamp != nil:
			switch {
			case logical.Timestamp.Unit.Millis != nil:
				unit = time.Millisecond
			case logical.Timestamp.Unit.Micros != nil:
				unit = time.Microsecond
			case logical.Timestamp.Unit.Nanos != nil:
				unit = time.Nanosecond
			}
		case converted == deprecated.TimestampMillis:
			unit = time.Millisecond
		case converted == deprecated.TimestampMicros:
			unit = time.Microsecond
		}
		if unit == 0 {
			return nil, apperrors.NewMalformedDataError(
				"column date is an int64 without a timestamp annotation", nil).
				WithContext("column", domain.ColumnDate)
		}
		return func(v parquet.Value) rawDate {
			return timeDate(unixIn(v.Int64(), unit))
		}, nil

	case parquet.Int96:
		return func(v parquet.Value) rawDate {
			return timeDate(int96Time(v.Int96()))
		}, nil
	}

	return nil, apperrors.NewMalformedDataError(
		fmt.Sprintf("column date has unsupported type %s", typ), nil).
		WithContext("column", domain.ColumnDate)
}

func unixIn(v int64, unit time.Duration) time.Time {
	perSecond := int64(time.Second / unit)
	sec := v / perSecond
	rem := v % perSecond
	if rem < 0 {
		sec--
		rem += perSecond
	}
	return time.Unix(sec, rem*int64(unit)).UTC()
}

// int96Time decodes the legacy impala timestamp: nanoseconds within the day
// in the low 8 bytes, julian day in the high 4.
func int96Time(v deprecated.Int96) time.Time {
	nanos := int64(uint64(v[1])<<32 | uint64(v[0]))
	days := int64(v[2]) - julianUnixEpoch
	return time.Unix(days*86400, 0).UTC().Add(time.Duration(nanos))
}
