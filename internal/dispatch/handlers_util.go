package dispatch

import (
	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/ipcwire"
)

func regionFromThumbnailRequest(body ipcwire.ThumbnailRequest) capture.Region {
	return capture.Region{
		MonitorID: body.MonitorID,
		X:         body.X,
		Y:         body.Y,
		Width:     body.Width,
		Height:    body.Height,
	}
}
