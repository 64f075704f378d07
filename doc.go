// Package vectordb provides a Go client for a vector database server speaking
// the HTTP/JSON API: load and select databases, declare tables with typed and
// fixed-dimension vector fields, insert records and run nearest-neighbor queries.
//
// A Client is a session: it remembers the database selected with UseDB and
// scopes every table and data operation to it. Calls made before a database
// is selected fail locally with ErrNoDatabaseSelected.
//
// Every network call returns the raw server outcome as a *Response. Non-2xx
// statuses are not errors; use Response.Err to convert them when error
// semantics are preferred. Transport failures are *ConnectivityError.
//
// # Low-level API
//
//	client, _ := vectordb.New(vectordb.WithHost("localhost"), vectordb.WithPort(8888))
//	_, _ = client.LoadDB(ctx, "MyDB", "/tmp/epsilla")
//	client.UseDB("MyDB")
//	_, _ = client.CreateTable(ctx, "docs", []vectordb.Field{
//	    vectordb.PrimaryKeyField("id", vectordb.FieldInt4),
//	    vectordb.ScalarField("title", vectordb.FieldString),
//	    vectordb.VectorField("embedding", vectordb.FieldVectorFloat, 4),
//	})
//	resp, _ := client.Query(ctx, vectordb.QueryRequest{
//	    Table:        "docs",
//	    QueryField:   "embedding",
//	    QueryVector:  []float32{0.35, 0.55, 0.47, 0.94},
//	    Response:     []string{"id", "title"},
//	    Limit:        2,
//	    WithDistance: true,
//	})
//	records, _ := resp.Records()
//
// # Schema-first API with Go generics
//
//	type Doc struct {
//	    ID        int32     `vectordb:"id,pk"`
//	    Title     string    `vectordb:"title"`
//	    Embedding []float32 `vectordb:"embedding,vector=4"`
//	}
//
//	fields, _ := vectordb.FieldsOf[Doc]()
//	_, _ = client.CreateTable(ctx, "docs", fields)
//	records, _ := vectordb.RecordsOf(docs)
//	_, _ = client.Insert(ctx, "docs", records)
package vectordb
