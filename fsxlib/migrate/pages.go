// Copyright 2024 The FSXVol Authors
// This file is part of FSXVol.
//
// FSXVol is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FSXVol is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with FSXVol. If not, see <http://www.gnu.org/licenses/>.

package migrate

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Page is a single pinned page's worth of migrated data: the page index
// within the file and the bytes read from the source brick, ready to be
// written to the destination. It is the Go analogue of the jnode/page pair
// reiser4 pins for the duration of a migrate_blocks call.
type Page struct {
	Index uint64
	Data  []byte
}

// PageReader fetches one page's worth of data from its current brick. It
// is supplied by the caller (the volume layer, which knows how to talk to
// a brick) so the migration engine itself stays storage-agnostic.
type PageReader func(ctx context.Context, idx uint64) ([]byte, error)

// PinPages reads every index concurrently, bounded by concurrency
// in-flight reads at a time, mirroring the original's page_io/page_cache_
// read_optional loop over an extent's units except that here the
// concurrency limit is explicit rather than implied by readahead size.
// golang.org/x/sync/errgroup's SetLimit is exactly this bound. The first
// error cancels every still-pending read and is returned; any pages
// already read are discarded.
func PinPages(ctx context.Context, concurrency int, indices []uint64, read PageReader) ([]*Page, error) {
	pages := make([]*Page, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, idx := range indices {
		i, idx := i, idx
		g.Go(func() error {
			data, err := read(gctx, idx)
			if err != nil {
				return err
			}
			pages[i] = &Page{Index: idx, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
