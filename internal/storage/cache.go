// internal/storage/cache.go
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/logger"
)

const cacheFile = "transactions.csv"

var cacheHeader = []string{
	"signature", "block_time", "slot", "token1", "token2",
	"token1_decimals", "token2_decimals", "amount1", "amount2",
	"from_address", "platform",
}

// TradeCache хранит свопы каждого кошелька в <dir>/<wallet>/transactions.csv
type TradeCache struct {
	dir    string
	logger *zap.Logger
}

// NewTradeCache создает кеш в каталоге dir
func NewTradeCache(dir string, logger *zap.Logger) *TradeCache {
	return &TradeCache{dir: dir, logger: logger.Named("cache")}
}

// Path возвращает путь к файлу кошелька
func (c *TradeCache) Path(wallet string) string {
	return filepath.Join(c.dir, wallet, cacheFile)
}

// Load читает кеш. Отсутствующий файл это пустой результат, битые строки
// пропускаются с предупреждением.
func (c *TradeCache) Load(wallet string) ([]domain.Swap, error) {
	f, err := os.Open(c.Path(wallet))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []domain.Swap
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cache line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && rec[0] == cacheHeader[0] {
			continue
		}
		s, err := decodeSwap(rec)
		if err != nil {
			c.logger.Warn("Skipping malformed cache row",
				zap.String("wallet", wallet),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}
		out = append(out, s)
	}

	// Файл дописывается в конец, поэтому порядок восстанавливаем
	out = Merge(out, nil)
	c.logger.Debug("Loaded cache", zap.String("wallet", wallet), zap.Int("count", len(out)))
	return out, nil
}

// Append дописывает свопы, которых еще нет в файле
func (c *TradeCache) Append(wallet string, swaps []domain.Swap) (int, error) {
	if len(swaps) == 0 {
		return 0, nil
	}
	existing, err := c.Load(wallet)
	if err != nil {
		return 0, err
	}
	known := Signatures(existing)

	w, err := logger.NewSafeCSVWriter(c.Path(wallet), logger.CSVOptions{Header: cacheHeader}, c.logger)
	if err != nil {
		return 0, fmt.Errorf("open cache for append: %w", err)
	}

	added := 0
	for _, s := range swaps {
		if _, dup := known[s.Signature]; dup {
			continue
		}
		known[s.Signature] = struct{}{}
		if err := w.WriteRecord(encodeSwap(s)); err != nil {
			w.Abort()
			return added, err
		}
		added++
	}
	if err := w.Close(); err != nil {
		return added, err
	}
	return added, nil
}

// Latest возвращает время самого нового свопа в кеше
func (c *TradeCache) Latest(wallet string) (time.Time, bool, error) {
	swaps, err := c.Load(wallet)
	if err != nil || len(swaps) == 0 {
		return time.Time{}, false, err
	}
	return swaps[0].BlockTime, true, nil
}

func encodeSwap(s domain.Swap) []string {
	return []string{
		s.Signature,
		strconv.FormatInt(s.BlockTime.Unix(), 10),
		strconv.FormatUint(s.Slot, 10),
		s.Token1,
		s.Token2,
		strconv.Itoa(s.Token1Decimals),
		strconv.Itoa(s.Token2Decimals),
		strconv.FormatFloat(s.Amount1, 'f', -1, 64),
		strconv.FormatFloat(s.Amount2, 'f', -1, 64),
		s.From,
		s.Platform,
	}
}

func decodeSwap(rec []string) (domain.Swap, error) {
	if len(rec) < len(cacheHeader) {
		return domain.Swap{}, fmt.Errorf("expected %d columns, got %d", len(cacheHeader), len(rec))
	}
	if rec[0] == "" {
		return domain.Swap{}, errors.New("empty signature")
	}

	var (
		s   = domain.Swap{Signature: rec[0], Token1: rec[3], Token2: rec[4], From: rec[9], Platform: rec[10]}
		err error
		ts  int64
	)
	if ts, err = strconv.ParseInt(rec[1], 10, 64); err != nil {
		return s, fmt.Errorf("block_time: %w", err)
	}
	s.BlockTime = time.Unix(ts, 0).UTC()
	if s.Slot, err = strconv.ParseUint(rec[2], 10, 64); err != nil {
		return s, fmt.Errorf("slot: %w", err)
	}
	if s.Token1Decimals, err = strconv.Atoi(rec[5]); err != nil {
		return s, fmt.Errorf("token1_decimals: %w", err)
	}
	if s.Token2Decimals, err = strconv.Atoi(rec[6]); err != nil {
		return s, fmt.Errorf("token2_decimals: %w", err)
	}
	if s.Amount1, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return s, fmt.Errorf("amount1: %w", err)
	}
	if s.Amount2, err = strconv.ParseFloat(rec[8], 64); err != nil {
		return s, fmt.Errorf("amount2: %w", err)
	}
	return s, nil
}
