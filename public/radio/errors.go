package radio

import "errors"

var ErrUnkownPayloadType = errors.New("unknown payload type")
var ErrDecrypt = errors.New("unable to decrypt payload")
var ErrNoKey = errors.New("encryption requested with an empty key")
var ErrKeyFormat = errors.New("key is not valid base64")
var ErrKeyLength = errors.New("unsupported key length")
