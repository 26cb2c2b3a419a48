package sample

import "context"

func (s *WidgetsService) Purge(ctx context.Context) error { return nil }
