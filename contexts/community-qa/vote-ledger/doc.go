// Package voteledger owns vote and acceptance state of questions and answers
// inside the community-qa context.
//
// Each post carries disjoint up/down voter sets, a derived score and a version
// token. Vote and acceptance commands run as optimistic read-modify-write
// cycles against that token and emit notifier events through an outbox.
package voteledger
