package pngstream

// ChunkInfo describes one chunk for reporting.
type ChunkInfo struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	Critical bool   `json:"critical"`
	Display  bool   `json:"display"`
}

// Info summarizes a PNG file.
type Info struct {
	Header    Header      `json:"header"`
	Chunks    []ChunkInfo `json:"chunks"`
	SizeBytes int         `json:"size_bytes"`
}

// Inspect parses data and lists its chunks in file order.
func Inspect(data []byte) (*Info, error) {
	chunks, err := Read(data)
	if err != nil {
		return nil, err
	}
	hdr, err := ParseHeader(chunks[0].Data)
	if err != nil {
		return nil, err
	}

	info := &Info{Header: hdr, SizeBytes: len(data), Chunks: make([]ChunkInfo, len(chunks))}
	for i, c := range chunks {
		info.Chunks[i] = ChunkInfo{
			Name:     c.Name.String(),
			Length:   len(c.Data),
			Critical: c.Name.IsCritical(),
			Display:  c.Name.IsDisplay(),
		}
	}
	return info, nil
}
