package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChain struct {
	mock.Mock
}

func (m *mockChain) GetBalance(ctx context.Context, address string) (float64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockChain) TokenSupply(ctx context.Context, mint string) (float64, error) {
	args := m.Called(ctx, mint)
	return args.Get(0).(float64), args.Error(1)
}

type mockBalances struct {
	mock.Mock
}

func (m *mockBalances) AccountBalance(ctx context.Context, address string) (float64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(float64), args.Error(1)
}

func TestBalancePrefersChain(t *testing.T) {
	chain := new(mockChain)
	chain.On("GetBalance", mock.Anything, walletA).Return(3.25, nil).Once()
	balances := new(mockBalances)

	s := newService(t, Deps{Source: walletFeed(), Chain: chain, Balances: balances}, DefaultOptions())
	bal, err := s.Balance(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, 3.25, bal)

	chain.AssertExpectations(t)
	balances.AssertNotCalled(t, "AccountBalance", mock.Anything, mock.Anything)
}

func TestBalanceDoesNotFallBackWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := new(mockChain)
	chain.On("GetBalance", mock.Anything, walletA).Return(0.0, context.Canceled).Once()
	balances := new(mockBalances)

	s := newService(t, Deps{Source: walletFeed(), Chain: chain, Balances: balances}, DefaultOptions())
	_, err := s.Balance(ctx, walletA)
	assert.True(t, errors.Is(err, context.Canceled))
	balances.AssertNotCalled(t, "AccountBalance", mock.Anything, mock.Anything)
}

func TestBalanceRejectsBadAddress(t *testing.T) {
	chain := new(mockChain)
	s := newService(t, Deps{Source: walletFeed(), Chain: chain}, DefaultOptions())

	_, err := s.Balance(context.Background(), "not-an-address")
	require.Error(t, err)
	chain.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
}
