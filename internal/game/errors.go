package game

import "errors"

var (
	// ErrInsufficientBalance refuses a round whose wager exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidWager refuses non-positive, non-finite or below-minimum wagers.
	ErrInvalidWager = errors.New("invalid wager")
	// ErrConfigurationInvalid marks a peg field or bin set that cannot be used.
	// It is fatal at startup.
	ErrConfigurationInvalid = errors.New("configuration invalid")
	// ErrWrongPhase is returned for commands issued in a phase that does not accept them.
	ErrWrongPhase = errors.New("command not allowed in current phase")
	// ErrRoundInProgress is returned when a session already has a ball in flight.
	ErrRoundInProgress = errors.New("round already in progress")
	// ErrSessionNotFound is returned by session stores for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRoundNotFound is returned for unknown round ids.
	ErrRoundNotFound = errors.New("round not found")
)
