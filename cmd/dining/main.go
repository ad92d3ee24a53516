// Command dining is the stress harness spec'd for this engine: N
// philosophers each repeatedly try to pick up both neighboring
// chopsticks atomically, release them, and try again, while an
// observer goroutine reads every chopstick in a single read
// transaction and checks that the number of picked-up chopsticks is
// always even. Ported from the dining-philosophers demo in the
// original Rust TL2 implementation this engine is based on.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"

	stm "github.com/tiancaiamao/tl2stm"
)

func main() {
	philosophers := flag.Int("philosophers", 8, "number of philosophers (and chopsticks)")
	iterations := flag.Int("iterations", 50000, "pick-up/put-down cycles per philosopher")
	observations := flag.Int("observations", 10000, "number of observer read transactions")
	flag.Parse()

	n := *philosophers
	mem, err := stm.NewMemory(uint64(n)*8, 8)
	if err != nil {
		log.Fatalf("dining: %v", err)
	}
	engine := stm.New(mem)

	_, ok := stm.WriteTransaction(engine, func(tx *stm.WriteTxn) stm.Result[struct{}] {
		for i := 0; i < n; i++ {
			tx.Store(uint64(i*8), make([]byte, 8))
		}
		return stm.Ok(struct{}{})
	})
	if !ok {
		log.Fatal("dining: failed to initialize chopsticks")
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go philosopher(engine, n, i, *iterations, &wg)
	}

	obs := make(chan struct{})
	go func() {
		defer close(obs)
		observer(engine, n, *observations)
	}()

	wg.Wait()
	<-obs
	log.Printf("dining: %d philosophers completed %d cycles each with no odd observation", n, *iterations)
}

// philosopher repeatedly tries to pick up both neighboring chopsticks
// in one write transaction, then drops them in a second. Picking up
// spins (with no backoff, matching the engine's obstruction-free, not
// wait-free, contract) until the attempt succeeds.
func philosopher(engine *stm.STM, n, i, iterations int, wg *sync.WaitGroup) {
	defer wg.Done()

	left := uint64(i * 8)
	right := uint64(((i + 1) % n) * 8)

	pickUp := func(tx *stm.WriteTxn) stm.Result[bool] {
		l, ok := tx.Load(left)
		if !ok {
			return stm.Retry[bool]()
		}
		r, ok := tx.Load(right)
		if !ok {
			return stm.Retry[bool]()
		}
		if l[0] == 0 && r[0] == 0 {
			tx.Store(left, []byte{1, 0, 0, 0, 0, 0, 0, 0})
			tx.Store(right, []byte{1, 0, 0, 0, 0, 0, 0, 0})
			return stm.Ok(true)
		}
		return stm.Ok(false)
	}

	putDown := func(tx *stm.WriteTxn) stm.Result[struct{}] {
		tx.Store(left, make([]byte, 8))
		tx.Store(right, make([]byte, 8))
		return stm.Ok(struct{}{})
	}

	for c := 0; c < iterations; c++ {
		for {
			picked, _ := stm.WriteTransaction(engine, pickUp)
			if picked {
				break
			}
		}
		stm.WriteTransaction(engine, putDown)
	}
}

// observer periodically reads every chopstick stripe in a single read
// transaction and panics if it ever sees an odd count of picked-up
// chopsticks, which would mean a philosopher's pick-up was observed
// mid-transaction — a violation of the engine's atomicity guarantee.
func observer(engine *stm.STM, n, observations int) {
	for k := 0; k < observations; k++ {
		chopsticks, ok := stm.ReadTransaction(engine, func(tx *stm.ReadTxn) stm.Result[[]byte] {
			v := make([]byte, n)
			for i := 0; i < n; i++ {
				b, loaded := tx.Load(uint64(i * 8))
				if !loaded {
					return stm.Retry[[]byte]()
				}
				v[i] = b[0]
			}
			return stm.Ok(v)
		})
		if !ok {
			continue
		}

		picked := 0
		for _, c := range chopsticks {
			if c == 1 {
				picked++
			}
		}
		if picked%2 != 0 {
			panic(fmt.Sprintf("dining: inconsistent observation %v", chopsticks))
		}
	}
}
