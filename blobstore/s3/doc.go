// Package s3 stores feature tables, distance matrices and alignment reports
// in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", func(o *s3.Options) {
//	    o.Prefix = "phonodist/"
//	    o.Region = "eu-central-1"
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = matrixio.Save(ctx, store, "matrices/hamming.tsv", m, matrixio.TSV)
//
// Reads are ranged GETs, Create streams through the multipart uploader and
// Put sends a CRC32C checksum unless disabled in UploadConfig.
package s3
