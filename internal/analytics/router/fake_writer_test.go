package router

import (
	"context"

	"github.com/angelmondragon/stn-picking/internal/analytics/types"
)

type fakeWriter struct {
	scans     []types.ScanFactRow
	pickLists []types.PickListFactRow
	err       error
}

func (f *fakeWriter) InsertScanFact(_ context.Context, row types.ScanFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.scans = append(f.scans, row)
	return nil
}

func (f *fakeWriter) InsertPickListFact(_ context.Context, row types.PickListFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.pickLists = append(f.pickLists, row)
	return nil
}
