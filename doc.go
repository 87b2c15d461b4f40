/*
Package streambalancer rebalances pending entries of a redis stream consumer group

Consumers of a group are named after the pod running them (<pod>_<index>). When a pod dies its
consumers keep owning delivered but unacknowledged entries forever, and a slow consumer keeps a
backlog that nobody else can pick up. A rebalance pass moves those entries back to the stream:
entries of dead consumers and every entry but the newest of a consumer with a backlog are claimed,
re-added as new messages and acknowledged. Dead consumers are deleted from the group afterwards.

A pass is a single synchronous run, it is meant to be triggered periodically by an external caller

*/
package streambalancer
