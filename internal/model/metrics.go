package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// R2 is the coefficient of determination 1 - SS_res/SS_tot. A constant target
// (SS_tot == 0) scores 1 when predictions are exact and 0 otherwise, so the
// result is always finite.
func R2(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot float64
	for i, y := range yTrue {
		d := y - yPred[i]
		ssRes += d * d
		m := y - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// MSE is the mean squared error.
func MSE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	s := 0.0
	for i, y := range yTrue {
		d := y - yPred[i]
		s += d * d
	}
	return s / float64(len(yTrue)), nil
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	s := 0.0
	for i, y := range yTrue {
		s += math.Abs(y - yPred[i])
	}
	return s / float64(len(yTrue)), nil
}

func checkPair(yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.New("metric: no observations")
	}
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("metric: %d observations but %d predictions", len(yTrue), len(yPred))
	}
	return nil
}
