package enums

// ArtworkStatus is the storage lifecycle of an uploaded artwork file.
type ArtworkStatus string

const (
	// ArtworkStatusTemporary files live under the temp prefix and are reaped
	// when no order claims them.
	ArtworkStatusTemporary ArtworkStatus = "temporary"
	ArtworkStatusAttached  ArtworkStatus = "attached"
	ArtworkStatusDeleted   ArtworkStatus = "deleted"
)

// ArtworkSource records where an artwork file came from.
type ArtworkSource string

const (
	ArtworkSourceUpload    ArtworkSource = "upload"
	ArtworkSourceGenerated ArtworkSource = "generated"
	ArtworkSourceMockup    ArtworkSource = "mockup"
)

func (s ArtworkStatus) String() string { return string(s) }

func (s ArtworkSource) String() string { return string(s) }
