// Command podshelf is the CLI for the recommendation extraction pipeline:
// queue episodes, process them, inspect results, and run the scheduler as a
// foreground daemon.
package main
