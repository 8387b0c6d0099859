package fn

import (
	"context"
	"sync"
)

// ParMapResult applies f to each item with at most workers calls in
// flight, returning Results in input order. Items not yet started when
// ctx is done resolve to ctx.Err() without calling f. A panic in f is
// converted into that item's error.
func ParMapResult[T, U any](ctx context.Context, items []T, workers int, f func(context.Context, int, T) Result[U]) []Result[U] {
	out := make([]Result[U], len(items))
	if len(items) == 0 {
		return out
	}
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, v := range items {
		if err := ctx.Err(); err != nil {
			out[i] = Err[U](err)
			continue
		}
		select {
		case <-ctx.Done():
			out[i] = Err[U](ctx.Err())
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, v T) {
			defer func() {
				if p := recover(); p != nil {
					out[i] = Errf[U]("fn: item %d panicked: %v", i, p)
				}
				<-sem
				wg.Done()
			}()
			out[i] = f(ctx, i, v)
		}(i, v)
	}
	wg.Wait()
	return out
}
