package billboard

import (
	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

type (
	// Advertisement is the value served by a lookup.
	Advertisement = types.Advertisement
	// Provider fetches advertisements by id. (nil, nil) means the id is unknown.
	Provider = types.Provider
	// ProviderFunc adapts a function to Provider.
	ProviderFunc = types.ProviderFunc
	// Source identifies which tier served a lookup.
	Source = types.Source
	// Serializer encodes advertisements for the cache.
	Serializer = types.Serializer
	// MetricsRecorder receives lookup events.
	MetricsRecorder = types.MetricsRecorder
	// Publisher sends metrics to an external sink.
	Publisher = types.Publisher
	// PublisherHealthMetrics is the periodic health sample given to a Publisher.
	PublisherHealthMetrics = types.PublisherHealthMetrics
	// FailureWindow tracks recent primary failures for the health gate.
	FailureWindow = types.FailureWindow
	// Logger provides logging operations.
	Logger = types.Logger
	// Configuration is the full client configuration.
	Configuration = config.Config
)

const (
	SourceNone    = types.SourceNone
	SourceCache   = types.SourceCache
	SourcePrimary = types.SourcePrimary
	SourceBackup  = types.SourceBackup
)
