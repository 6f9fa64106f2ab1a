// Package kmeans implements k-means clustering for partition training.
//
// Used internally by the IVF index to learn partition centroids from
// training data.
package kmeans
