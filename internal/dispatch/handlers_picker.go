package dispatch

import (
	"context"

	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
)

func init() {
	register(ipcwire.TypeQuerySelection, handleQuerySelection)
	register(ipcwire.TypeValidateToken, handleValidateToken)
	register(ipcwire.TypeStoreToken, handleStoreToken)
}

func handleQuerySelection(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	sel, ok := deps.Picker.Selection()
	if !ok {
		return ipcwire.Envelope{Type: ipcwire.TypeNoSelection}
	}
	return okEnvelope(ipcwire.TypeSelection, ipcwire.SelectionResponse{
		SourceType: sel.SourceType,
		SourceID:   sel.SourceID,
		Geometry:   sel.Geometry,
	})
}

func handleValidateToken(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.TokenRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	if deps.Picker.ValidateToken(body.Token) {
		return ipcwire.Envelope{Type: ipcwire.TypeTokenValid}
	}
	return ipcwire.Envelope{Type: ipcwire.TypeTokenInvalid}
}

func handleStoreToken(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.TokenRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	if err := deps.Picker.StoreToken(body.Token); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeTokenStored}
}
