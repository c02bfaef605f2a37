// Package gamerec embeds the content-based game recommender in a Go program.
//
// A Client serves queries from a trained model held in memory. It is either
// loaded from the artifact pair written by the training job, or trained in
// process from a corpus.
//
// # Serving a trained model
//
//	client, _ := gamerec.New(ctx,
//	    gamerec.WithGCS("models-bucket", "models/current"),
//	    gamerec.WithFallbackDir("/var/lib/gamerec/models"),
//	)
//	defer client.Close()
//	recs, _ := client.Recommend(ctx, 1942, 5)
//
// # Training in process
//
//	client, report, _ := gamerec.Train(ctx, games, gamerec.WithLocalDir("./models"))
//	log.Printf("trained on %d games", report.Samples)
//	_, _ = client.Save(ctx)
//	recs, _ := client.RecommendText(ctx, "cozy farming sim", 10)
package gamerec
