// Package hash provides the CRC32-Castagnoli checksum used by the binary
// matrix format and S3 uploads.
//
//	sum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(payload)
//	sum := h.Sum32()
package hash
