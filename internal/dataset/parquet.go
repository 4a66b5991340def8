package dataset

import (
	"fmt"
	"log"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/sabarim/contango/internal/contango"
)

// contangoPoint is the parquet row layout for one computed record
type contangoPoint struct {
	Date           string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FrontMonth     int32    `parquet:"name=front_month, type=INT32, encoding=PLAIN_DICTIONARY"`
	F1             float64  `parquet:"name=f1, type=DOUBLE, encoding=PLAIN"`
	F2             float64  `parquet:"name=f2, type=DOUBLE, encoding=PLAIN"`
	F3             float64  `parquet:"name=f3, type=DOUBLE, encoding=PLAIN"`
	F4             float64  `parquet:"name=f4, type=DOUBLE, encoding=PLAIN"`
	F5             float64  `parquet:"name=f5, type=DOUBLE, encoding=PLAIN"`
	F6             float64  `parquet:"name=f6, type=DOUBLE, encoding=PLAIN"`
	F7             float64  `parquet:"name=f7, type=DOUBLE, encoding=PLAIN"`
	F8             float64  `parquet:"name=f8, type=DOUBLE, encoding=PLAIN"`
	F9             *float64 `parquet:"name=f9, type=DOUBLE, repetitiontype=OPTIONAL"`
	F10            *float64 `parquet:"name=f10, type=DOUBLE, repetitiontype=OPTIONAL"`
	F11            *float64 `parquet:"name=f11, type=DOUBLE, repetitiontype=OPTIONAL"`
	F12            *float64 `parquet:"name=f12, type=DOUBLE, repetitiontype=OPTIONAL"`
	Contango21     float64  `parquet:"name=contango_2_1, type=DOUBLE, encoding=PLAIN"`
	Contango74     float64  `parquet:"name=contango_7_4, type=DOUBLE, encoding=PLAIN"`
	Contango74Div3 float64  `parquet:"name=con_7_4_div_3, type=DOUBLE, encoding=PLAIN"`
}

// writeRecords mirrors this run's computed records to a parquet file
func writeRecords(filename string, records []contango.Record) error {
	if len(records) == 0 {
		log.Printf("No records to mirror to parquet")
		return nil
	}

	sorted := append([]contango.Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	fw, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(contangoPoint), 4)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_GZIP

	for _, record := range sorted {
		point := contangoPoint{
			Date:           record.Date.Format("2006-01-02"),
			FrontMonth:     int32(record.FrontMonth),
			F1:             record.Prices[0],
			F2:             record.Prices[1],
			F3:             record.Prices[2],
			F4:             record.Prices[3],
			F5:             record.Prices[4],
			F6:             record.Prices[5],
			F7:             record.Prices[6],
			F8:             record.Prices[7],
			F9:             optionalPrice(record.Prices, 8),
			F10:            optionalPrice(record.Prices, 9),
			F11:            optionalPrice(record.Prices, 10),
			F12:            optionalPrice(record.Prices, 11),
			Contango21:     record.Contango21,
			Contango74:     record.Contango74,
			Contango74Div3: record.Contango74Div3,
		}
		if err := pw.Write(point); err != nil {
			return fmt.Errorf("failed to write parquet data: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	log.Printf("Mirrored %d records to %s", len(sorted), filename)
	return nil
}

func optionalPrice(prices []float64, i int) *float64 {
	if i >= len(prices) {
		return nil
	}
	v := prices[i]
	return &v
}
