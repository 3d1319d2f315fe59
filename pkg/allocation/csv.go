package allocation

import (
	"encoding/csv"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/code-payments/distributor-client/pkg/solana"
)

// ReadCSV reads `pubkey,amount` rows. The first row is a header. Blank rows
// and rows with an empty field are skipped. Amounts are human units scaled by
// 10^decimals and floored.
func ReadCSV(r io.Reader, decimals int32) ([]Entry, error) {
	if decimals < 0 {
		return nil, errors.Errorf("invalid decimals %d", decimals)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var entries []Entry
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "failed to read csv")
		}

		if row == 0 {
			continue
		}

		line, _ := reader.FieldPos(0)

		if len(record) < 2 {
			continue
		}
		address := strings.TrimSpace(record[0])
		value := strings.TrimSpace(record[1])
		if len(address) == 0 || len(value) == 0 {
			continue
		}

		claimant, err := solana.ParsePublicKey(address)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		amount, err := ScaleAmount(value, decimals)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		entries = append(entries, Entry{
			Claimant: claimant,
			Amount:   amount,
			Line:     line,
		})
	}

	return entries, nil
}

func ReadCSVFile(path string, decimals int32) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	return ReadCSV(f, decimals)
}

// ScaleAmount converts a decimal human value into smallest units.
func ScaleAmount(value string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %q", value)
	}
	if d.IsNegative() {
		return 0, errors.Errorf("negative amount %q", value)
	}

	scaled := d.Shift(decimals).Floor().BigInt()
	if !scaled.IsUint64() {
		return 0, errors.Errorf("amount %q overflows", value)
	}
	return scaled.Uint64(), nil
}

// FormatAmount renders smallest units as a fixed-point string with the
// given number of decimals.
func FormatAmount(amount uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).StringFixed(decimals)
}
