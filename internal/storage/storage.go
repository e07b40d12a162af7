// internal/storage/storage.go
package storage

import (
	"errors"
	"sort"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// ErrNoCache возвращается в режиме cache_only, когда для кошелька нет файла
var ErrNoCache = errors.New("no cached trades")

// Store определяет интерфейс для локального кеша свопов
type Store interface {
	// Load возвращает свопы кошелька, новые первыми
	Load(wallet string) ([]domain.Swap, error)
	// Append дописывает свопы с новыми сигнатурами и возвращает их количество
	Append(wallet string, swaps []domain.Swap) (int, error)
}

// Merge объединяет два набора без дублей по сигнатуре, новые первыми.
// При совпадении сигнатуры остается запись из fresh.
func Merge(cached, fresh []domain.Swap) []domain.Swap {
	seen := make(map[string]struct{}, len(cached)+len(fresh))
	out := make([]domain.Swap, 0, len(cached)+len(fresh))
	for _, set := range [][]domain.Swap{fresh, cached} {
		for _, s := range set {
			if _, dup := seen[s.Signature]; dup {
				continue
			}
			seen[s.Signature] = struct{}{}
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(swaps []domain.Swap) {
	sort.SliceStable(swaps, func(i, j int) bool {
		if !swaps[i].BlockTime.Equal(swaps[j].BlockTime) {
			return swaps[i].BlockTime.After(swaps[j].BlockTime)
		}
		return swaps[i].Slot > swaps[j].Slot
	})
}

// Signatures возвращает множество сигнатур
func Signatures(swaps []domain.Swap) map[string]struct{} {
	out := make(map[string]struct{}, len(swaps))
	for _, s := range swaps {
		out[s.Signature] = struct{}{}
	}
	return out
}
