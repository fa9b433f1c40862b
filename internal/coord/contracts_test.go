package coord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func plannedContract(name, path string) InterfaceContract {
	return InterfaceContract{
		ProviderAgent: "provider",
		InterfaceName: name,
		FilePath:      path,
		Signature:     "() => void",
	}
}

func TestWaitReturnsImmediatelyWhenReady(t *testing.T) {
	reg := NewContractRegistry()
	contract := reg.Register(plannedContract("useAuth", "src/hooks/useAuth.ts"))
	reg.UpdateStatus(contract.ID, ContractReady)

	start := time.Now()
	got := reg.Wait(context.Background(), "useAuth", "consumer", time.Second)
	require.NotNil(t, got)
	require.Equal(t, contract.ID, got.ID)
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitResolvesWhenDiscoveryAnnounced(t *testing.T) {
	reg := NewContractRegistry()
	reg.Register(plannedContract("useAuth", "src/hooks/useAuth.ts"))

	done := make(chan *InterfaceContract, 1)
	go func() {
		done <- reg.Wait(context.Background(), "useAuth", "consumer", 5*time.Second)
	}()

	// Wait until the consumer is parked before announcing.
	require.Eventually(t, func() bool {
		return reg.PendingWaiters("useAuth") == 1
	}, time.Second, time.Millisecond)

	readied := reg.ResolveByDiscovery(DiscoveryEntry{
		FilePath: "src/hooks/useAuth.ts",
		Exports:  []string{"useAuth"},
	})
	require.Len(t, readied, 1)
	require.Equal(t, ContractReady, readied[0].Status)
	require.NotNil(t, readied[0].ReadyAt)

	select {
	case got := <-done:
		require.NotNil(t, got)
		require.Equal(t, "useAuth", got.InterfaceName)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
	require.Zero(t, reg.PendingWaiters("useAuth"))
}

func TestResolveByDiscoveryRequiresMatchingPath(t *testing.T) {
	reg := NewContractRegistry()
	reg.Register(plannedContract("useAuth", "src/hooks/useAuth.ts"))

	readied := reg.ResolveByDiscovery(DiscoveryEntry{
		FilePath: "src/other.ts",
		Exports:  []string{"useAuth"},
	})
	require.Empty(t, readied)
}

func TestWaitTimesOutAndDeregisters(t *testing.T) {
	reg := NewContractRegistry()

	got := reg.Wait(context.Background(), "never", "consumer", 20*time.Millisecond)
	require.Nil(t, got)
	require.Zero(t, reg.PendingWaiters("never"))
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	reg := NewContractRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan *InterfaceContract, 1)
	go func() {
		done <- reg.Wait(ctx, "never", "consumer", time.Minute)
	}()
	require.Eventually(t, func() bool {
		return reg.PendingWaiters("never") == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case got := <-done:
		require.Nil(t, got)
	case <-time.After(time.Second):
		t.Fatal("cancellation did not release the waiter")
	}
	require.Zero(t, reg.PendingWaiters("never"))
}

func TestAllWaitersReleasedTogether(t *testing.T) {
	reg := NewContractRegistry()
	contract := reg.Register(plannedContract("useCart", "src/hooks/useCart.ts"))

	const consumers = 5
	var wg sync.WaitGroup
	results := make(chan *InterfaceContract, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- reg.Wait(context.Background(), "useCart", "consumer", 5*time.Second)
		}()
	}
	require.Eventually(t, func() bool {
		return reg.PendingWaiters("useCart") == consumers
	}, time.Second, time.Millisecond)

	reg.UpdateStatus(contract.ID, ContractReady)
	wg.Wait()
	close(results)

	count := 0
	for got := range results {
		require.NotNil(t, got)
		require.Equal(t, contract.ID, got.ID)
		count++
	}
	require.Equal(t, consumers, count)
}

func TestReadyAtMostOncePerRegistration(t *testing.T) {
	reg := NewContractRegistry()
	contract := reg.Register(plannedContract("useAuth", "src/hooks/useAuth.ts"))

	first, ok := reg.UpdateStatus(contract.ID, ContractReady)
	require.True(t, ok)
	readyAt := first.ReadyAt
	require.NotNil(t, readyAt)

	second, ok := reg.UpdateStatus(contract.ID, ContractReady)
	require.True(t, ok)
	require.Equal(t, *readyAt, *second.ReadyAt)
}

func TestCloseReleasesPendingWaiters(t *testing.T) {
	reg := NewContractRegistry()

	done := make(chan *InterfaceContract, 1)
	go func() {
		done <- reg.Wait(context.Background(), "never", "consumer", time.Minute)
	}()
	require.Eventually(t, func() bool {
		return reg.PendingWaiters("never") == 1
	}, time.Second, time.Millisecond)

	reg.Close()
	select {
	case got := <-done:
		require.Nil(t, got)
	case <-time.After(time.Second):
		t.Fatal("close did not release the waiter")
	}

	// Waiting on a closed registry resolves immediately.
	require.Nil(t, reg.Wait(context.Background(), "never", "consumer", time.Minute))
}

func TestUpdateStatusUnknownContract(t *testing.T) {
	reg := NewContractRegistry()
	_, ok := reg.UpdateStatus("missing", ContractReady)
	require.False(t, ok)
}
