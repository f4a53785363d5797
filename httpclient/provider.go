package httpclient

import (
	"github.com/kbukum/pinch/provider"
)

// compile-time assertions
var _ provider.RequestResponse[Request, *Response] = (*Adapter)(nil)
var _ provider.Closeable = (*Adapter)(nil)
