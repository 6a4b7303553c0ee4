package storage

import "go.uber.org/fx"

var Module = fx.Module("storage",
	fx.Provide(NewLocal),
	fx.Provide(func(s *LocalStore) BlobStore { return s }),
)
