package metadata

/**
 * @brief A structure to hold image resource data. Only the header of the
 * image is decoded; pixels stay on disk until a renderer asks for them.
 */
type ImageResourceData struct {
	/** @brief The number of channels. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The codec that recognised the file (png, jpeg, tga, ...). */
	Format string
}
