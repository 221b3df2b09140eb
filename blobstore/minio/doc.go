// Package minio is a blobstore.Store for MinIO and other S3-compatible
// services (Ceph, Garage, SeaweedFS).
//
//	store, err := minio.New("localhost:9000", "phonology", func(o *minio.Options) {
//	    o.AccessKey, o.SecretKey = "minioadmin", "minioadmin"
//	    o.Prefix = "tables/"
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, err := blobstore.ReadAll(ctx, store, "ipa.tsv")
//
// Unlike the s3 package it needs no AWS SDK configuration.
package minio
